package keybindings

import (
	"fmt"
	"testing"
)

func TestNoDuplicateKeyBindings(t *testing.T) {
	// Check each context individually
	for contextName, bindings := range ContextBindings {
		t.Run(fmt.Sprintf("Context_%s", contextName), func(t *testing.T) {
			keyToAction := make(map[string]Action)

			for _, binding := range bindings {
				// Check primary key
				if existingAction, exists := keyToAction[binding.KeyMap.Primary]; exists {
					t.Errorf("Duplicate key binding '%s' in context '%s': "+
						"first assigned to action '%s', then to '%s'",
						binding.KeyMap.Primary, contextName, existingAction, binding.Action)
				} else {
					keyToAction[binding.KeyMap.Primary] = binding.Action
				}

				// Check secondary key if it exists
				if binding.KeyMap.Secondary != "" {
					if existingAction, exists := keyToAction[binding.KeyMap.Secondary]; exists {
						t.Errorf("Duplicate key binding '%s' in context '%s': "+
							"first assigned to action '%s', then to '%s'",
							binding.KeyMap.Secondary, contextName, existingAction, binding.Action)
					} else {
						keyToAction[binding.KeyMap.Secondary] = binding.Action
					}
				}
			}
		})
	}
}

func TestEveryContextAvoidsGlobalKeys(t *testing.T) {
	globalKeys := make(map[string]Action)
	for _, binding := range globalBindings {
		globalKeys[binding.KeyMap.Primary] = binding.Action
		if binding.KeyMap.Secondary != "" {
			globalKeys[binding.KeyMap.Secondary] = binding.Action
		}
	}

	for contextName, bindings := range ContextBindings {
		if contextName == ContextGlobal || contextName == ContextSearchMode {
			// Search mode deliberately reuses esc to cancel
			continue
		}
		for _, binding := range bindings {
			if action, clash := globalKeys[binding.KeyMap.Primary]; clash {
				t.Errorf("Context '%s' binds '%s' to '%s' but it is the global '%s'",
					contextName, binding.KeyMap.Primary, binding.Action, action)
			}
		}
	}
}
