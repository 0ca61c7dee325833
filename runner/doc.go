// Package runner drives one conversational turn: it loads the session,
// replays its history into the agent and stores the new contents.
package runner
