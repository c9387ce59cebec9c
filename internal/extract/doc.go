// Package extract implements the helper side of an info request: given a
// type tag and a path it runs the matching extractor and returns the
// metadata record for that tag.
//
// Images go through the media decoder chain, audio and video through the
// container engines selected by the settings, and the remaining domains
// (PDF, office packages, archives, folders, OBJ models, plain files) are
// read directly. Failures to decode are reported as ErrNoInfo.
package extract
