// Package mediatypes provides the content type taxonomy used to classify
// file system items.
//
// This package exists as a dependency-free foundation that can be imported by
// other packages without creating import cycles. It contains the identifier
// constants, the fixed supertype table, and pure lookup functions.
//
// # Identifiers
//
// Identifiers are reverse-DNS strings ("public.jpeg", "com.adobe.pdf").
// Each identifier has zero or more direct supertypes; Conforms walks them
// transitively:
//
//	mediatypes.Conforms(mediatypes.JPEG, mediatypes.Image) // true
//	mediatypes.Conforms(mediatypes.DMG, mediatypes.Archive) // true
//	mediatypes.Conforms(mediatypes.DMG, mediatypes.DiskImage) // true
//
// # Lookup
//
// Use ForFileInfo to derive the identifier of an item after stat'ing it.
// Directories become folders, bundles, packages, or application bundles
// depending on their extension. Unknown extensions yield a synthesized
// "dyn.<ext>" identifier that only conforms to public.data, which lets users
// target such files from custom format settings.
package mediatypes
