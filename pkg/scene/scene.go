// Package scene classifies a user message into the scene that drives the
// turn's tool dispatch. Detection is keyword-based and is a stand-in for a
// real intent classifier; bindings for each scene live in pkg/tools.
package scene

import "strings"

// Scene tags a message with the conversational intent it matched.
type Scene string

const (
	// Text is the default scene; it never triggers a tool call.
	Text Scene = "text"
	// Swap indicates the user wants to trade one token for another.
	Swap Scene = "swap"
	// Deposit indicates the user wants to fund their account.
	Deposit Scene = "deposit"
)

// Scenes are checked in priority order; first match wins.
var keywords = []struct {
	scene Scene
	words []string
}{
	{Swap, []string{"swap", "兑换", "交换"}},
	{Deposit, []string{"deposit", "充值", "入金"}},
}

// Detect classifies a message by lower-cased substring matching. It is
// deterministic, side-effect-free and O(len(message)).
func Detect(message string) Scene {
	m := strings.ToLower(message)
	for _, k := range keywords {
		for _, w := range k.words {
			if strings.Contains(m, w) {
				return k.scene
			}
		}
	}
	return Text
}
