// Package player implements the playback and seek interaction of a feed
// entry: time display, seek-track geometry, visibility-driven autoplay,
// drag-to-seek and the live comment count shown next to the video.
//
// Nothing here renders anything. A front end feeds the package discrete
// events (pointer down/move/up, visibility ratios, media time updates,
// clicks) and reads back [State].
package player
