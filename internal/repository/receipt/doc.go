// Package receipt implements persistence for the install Receipt.
//
// The FileRepository stores and loads the receipt as JSON in the install
// destination and exposes a Repository interface that the installer
// service depends on.
package receipt
