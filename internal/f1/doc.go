// Package f1 defines the normalized Formula 1 records shared by every source
// adapter, along with the small ports (fetcher, clock, publisher) the
// acquisition core depends on.
package f1
