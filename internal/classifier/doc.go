// Package classifier maps a file system item to exactly one domain
// (pdf, image, video, audio, office, model, archive, folder, custom, others)
// by walking an ordered table of conformance checks against the item's
// content type identifier.
//
// The order is fixed and the first enabled match wins:
//
//  1. PDF and Illustrator documents
//  2. images
//  3. movies
//  4. audio
//  5. office documents (OOXML and OpenDocument word, sheet, presentation)
//  6. 3D content
//  7. archives, excluding disk images
//  8. plain folders
//  9. bundles and packages, when bundle handling is enabled
//  10. user custom formats, in list order
//  11. the "others" fallback
//
// Settings are passed by value on every call; the classifier keeps no state
// between requests.
package classifier
