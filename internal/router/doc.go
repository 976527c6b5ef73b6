// Package router resolves navigation paths to views, gating protected paths
// behind the session.
//
// # Resolution
//
// Routes are tried in declaration order and the first matcher that accepts
// the whole path wins. Matchers come in three flavours: Exact, Pattern with
// {name} segments, and Regexp (anchored automatically).
//
// Without a session every path outside the public set is redirected to the
// login path before anything is drawn. Navigate follows that redirect the way
// a browser follows a hash change.
//
// # Actions
//
// A route may carry an Action that loads data for its view. The action runs
// in its own goroutine after the frame has been rendered. Each render bumps a
// generation counter and cancels the previous frame's context; a result whose
// generation is no longer current is dropped, so a slow response for a page
// the user has left never overwrites the page they are on.
//
// Errors and panics from actions are delivered to the renderer as the
// frame's error. Session expiry is not: the session store's listeners have
// already moved navigation to the login view by the time the action returns.
package router
