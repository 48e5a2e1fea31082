// Package output renders aerosense-cli results.
//
//   - formatter.go: Formatter interface and factory
//   - table.go: aligned tables, with wide-only columns and humanized
//     byte and timestamp cells
//   - json.go: indented JSON
//   - yaml.go: YAML that keeps JSON field names and order
//   - progress.go: progress line for flight transfers
package output
