// Package sanitizer normalizes user input before validation and storage.
//
// All functions are idempotent. Invalid input yields an empty value rather
// than an error; validators decide whether empty is acceptable.
//
// Normalization includes:
//   - Phone numbers: E.164 (+[country][number]), parsed against a preferred region
//   - Emails: trimmed and lowercased
//   - Names and addresses: whitespace collapsed and trimmed
//   - URLs: scheme enforced, host lowercased, tracking parameters dropped
//   - Slices: empty values and duplicates removed after normalization
package sanitizer
