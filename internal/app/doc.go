// Package app is the composition root of libterm.
//
// # Overview
//
// Run loads the configuration, opens the log file and the sqlite state
// store, builds an App and hands it to the terminal UI as its Controller.
// Nothing is global: every component is owned by the App value.
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> LoadConfig()        config file plus flag overrides
//	       ├─────> logging.New()       slog text records in data_dir
//	       ├─────> storage.OpenSQLite() token and theme
//	       ├─────> New()               session, client, progress, router
//	       ├─────> App.Start()         resolve the start path
//	       └─────> ui.Run()            Bubble Tea program (blocks)
//
// # Session Events
//
// App subscribes to the session store. A cleared session resets the progress
// cache and navigates to /login, whether the user logged out or the backend
// answered 401. A successful login refreshes progress in the background.
//
// # Routes
//
// routes.go holds the route table. Each protected route pairs a view kind
// understood by the ui package with an action that loads the page data
// through the library client.
//
// # One-shot Commands
//
// Whoami, Logout and Ping back the CLI subcommands. They open the state
// store directly and never start the UI.
package app
