// Package ui is the Bubble Tea front end for libterm.
//
// # Rendering
//
// The router never talks to Bubble Tea directly. It renders into a Screen,
// a mutex-guarded copy of the latest frame, header and action result. Every
// change signals a one-slot channel; the model waits on it with a command
// and redraws from a snapshot. Signals coalesce, so a burst of router
// activity costs one redraw.
//
// An action result is attached only to the frame it was launched for. The
// Screen drops anything else, on top of the router's own generation check.
//
// # Views
//
// Frames carry a view kind (home, courses, course, module, topic, search,
// users, about, login, register, notfound). List views share one cursor
// driven renderer; the topic view flattens its HTML content into a
// scrollable viewport and shows "[ Mark as Complete ]" or "[ Completed ]"
// beneath it.
//
// # Messages
//
// Errors and notices share a single banner line under the header. Session
// expiry is never shown as an error; the login view explains instead.
//
// # Themes
//
// Two palettes, dark and light, toggled with T and saved through the
// application's preferences.
package ui
