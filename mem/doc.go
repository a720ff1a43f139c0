// Package mem simulates a first-fit, explicit free-list memory allocator
// over a fixed-size space of abstract words. Addresses and lengths are plain
// integers; no real memory is ever touched.
package mem
