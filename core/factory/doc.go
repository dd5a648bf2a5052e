// Package factory instantiates pluggable modules (metrics sinks, journal
// backends, store backends) from configuration. A module is described by a
// type name and a raw settings map; the registered factory decodes the map
// into its own typed struct.
//
//	reg := factory.NewRegistry[journal.Store]()
//	reg.Register("jsonl", func(conf map[string]any) (journal.Store, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    return journal.NewJSONLStore(c.Path)
//	})
package factory
