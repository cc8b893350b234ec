// Package output renders Kubernetes objects and the discovered resource
// catalog for the command line.
//
// # Formats
//
// Objects and catalogs can be printed as JSON (the default), YAML, a table
// or one name per line:
//
//	printer := output.NewPrinter(os.Stdout, &output.Config{Format: output.FormatTable})
//	err := printer.PrintObject(obj)
//
// List objects are printed item by item in table and name mode. Items
// without their own kind inherit it from the list kind (PodList -> Pod).
//
// # Field Exclusion (Slim Output)
//
// With SlimOutput set, verbose fields such as metadata.managedFields and the
// last-applied-configuration annotation are removed before printing.
//
// # Secret Masking
//
// With MaskSecrets set, the data and stringData values of Secrets, including
// those inside lists, are replaced with "***REDACTED***". Transformations
// always work on a copy; the caller's object is never modified.
package output
