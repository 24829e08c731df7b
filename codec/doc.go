// Package codec converts between the text a widget holds and typed field values.
package codec
