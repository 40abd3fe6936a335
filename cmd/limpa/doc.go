// Command limpa manages podcast subscriptions and publishes ad-free feeds.
package main
