// Package register loads all shipped action plugins.
package register

import (
	// blank import registration pattern
	_ "github.com/joyremap/joyremap/action/macroaction"
	_ "github.com/joyremap/joyremap/action/pause"
	_ "github.com/joyremap/joyremap/action/remap"
	_ "github.com/joyremap/joyremap/action/speech"
)
