// Package feed fetches, validates, and rewrites origin podcast feeds.
//
// Fetching uses a two-tier identity policy: requests identify as limpa first
// and retry once with a browser user agent when the origin answers 403.
// Rewriting prefers a structural (tree-based) transform and degrades to
// substitution scoped to a single episode element when parsing fails.
package feed
