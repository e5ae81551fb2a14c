// Package versions parses free-form dependency version strings into an
// ordered major/minor/patch triple. Parsing never fails: any segment that does
// not start with digits counts as zero, so every input participates in a total
// order.
package versions
