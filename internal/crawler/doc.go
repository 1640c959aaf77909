// Package crawler defines the types, interfaces, retry policy and naming
// rules shared by the fetch and extract stages of the idiom crawler.
package crawler
