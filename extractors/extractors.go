// Package extractors provides the built-in document extractors.
// Importing it registers every built-in with the global registry:
//
//	import _ "github.com/kreuzberg/kreuzberg-go/extractors"
package extractors

import (
	"fmt"

	kreuzberg "github.com/kreuzberg/kreuzberg-go"
)

const builtinVersion = "1.0.0"

// base supplies the no-op lifecycle shared by the built-ins.
type base struct {
	name string
}

func (b base) Name() string      { return b.name }
func (b base) Version() string   { return builtinVersion }
func (b base) Initialize() error { return nil }
func (b base) Shutdown() error   { return nil }

func init() {
	for _, e := range []kreuzberg.DocumentExtractor{
		&plainExtractor{base{"plain-text"}},
		&htmlExtractor{base{"html"}},
		&pdfExtractor{base{"pdf"}},
		&csvExtractor{base{"csv"}},
		&jsonExtractor{base{"json"}},
		&yamlExtractor{base{"yaml"}},
		&imageExtractor{base{"image"}},
	} {
		if err := kreuzberg.RegisterExtractor(e); err != nil {
			panic(fmt.Sprintf("register built-in extractor %s: %v", e.Name(), err))
		}
	}
}
