package soundbig

import (
	"fmt"
	"strings"
)

// Component actions. The custom id of a component is "sb:<action>[:<arg>...]".
const (
	actionQueue     = "queue" // sb:queue:<soundID>
	actionPlayQueue = "play"  // sb:play
	actionDraftAdd  = "draft" // sb:draft:<draftID>:<soundID>
	actionDraftSave = "save"  // sb:save:<draftID>
	actionDelete    = "del"   // sb:del:<combination id>
	actionPlayCombo = "combo" // sb:combo:<combination id>

	customIDPrefix = "sb"
	customIDMaxLen = 100
)

// argCount is the number of arguments per action. The last argument may
// contain colons.
var argCount = map[string]int{
	actionQueue:     1,
	actionPlayQueue: 0,
	actionDraftAdd:  2,
	actionDraftSave: 1,
	actionDelete:    1,
	actionPlayCombo: 1,
}

func customID(action string, args ...string) string {
	return strings.Join(append([]string{customIDPrefix, action}, args...), ":")
}

func parseCustomID(id string) (action string, args []string, err error) {
	parts := strings.SplitN(id, ":", 2)
	if len(parts) != 2 || parts[0] != customIDPrefix {
		return "", nil, fmt.Errorf("unknown component id %q", id)
	}

	rest := strings.SplitN(parts[1], ":", 2)
	action = rest[0]
	n, ok := argCount[action]
	if !ok {
		return "", nil, fmt.Errorf("unknown component action %q", action)
	}
	if n == 0 {
		if len(rest) > 1 {
			return "", nil, fmt.Errorf("unexpected arguments in component id %q", id)
		}
		return action, nil, nil
	}
	if len(rest) < 2 {
		return "", nil, fmt.Errorf("missing arguments in component id %q", id)
	}

	args = strings.SplitN(rest[1], ":", n)
	if len(args) != n {
		return "", nil, fmt.Errorf("component id %q needs %d arguments", id, n)
	}
	for _, a := range args {
		if a == "" {
			return "", nil, fmt.Errorf("empty argument in component id %q", id)
		}
	}
	return action, args, nil
}
