package main

import (
	"fmt"

	"github.com/mykube-run/krefresh/cmd/krefresh-example/config"
	"github.com/mykube-run/krefresh/pkg/parser"
	"github.com/mykube-run/krefresh/pkg/reload"
	"github.com/mykube-run/krefresh/pkg/types"
)

// db demonstrates how database is reconnected,
// it would be a DB SINGLETON POINTER in real code
var db string

var hdl1 = reload.ConfigUpdateHandler{
	Name: "database",
	Handle: func(prev, cur interface{}) error {
		fmt.Printf("* previous config: %+v\n", prev)
		fmt.Printf("* current config: %+v\n", cur)
		pc, _ := prev.(config.Sample)
		cc, _ := cur.(config.Sample)

		if cc.DB.Address != pc.DB.Address {
			if pc.DB.Address == "" {
				fmt.Printf("* database address was set, connecting database...\n")
				db = cc.DB.Address
				return nil
			}
			fmt.Printf("* database address was updated, reconnecting database...\n")
			db = cc.DB.Address
		}
		return nil
	},
}

var hdl2 = reload.ConfigUpdateHandler{
	Name: "feature gate",
	Handle: func(prev, cur interface{}) error {
		pc, _ := prev.(config.Sample)
		cc, _ := cur.(config.Sample)

		if cc.FeatureGate.EnableXXX != pc.FeatureGate.EnableXXX &&
			cc.FeatureGate.EnableXXX {
			fmt.Printf("* feature xxx was enabled, updating dependencies...\n")
		}
		return nil
	},
}

func preRefresh(evt types.ChangeEvent) {
	fmt.Printf("* refreshing on %v\n", evt)
	if e, ok := evt.(*types.DirectChangeEvent); ok {
		for _, k := range parser.Keys(e.Changes) {
			c := e.Changes[k]
			fmt.Printf("  - %v %v: %q -> %q\n", c.Type, k, c.OldValue, c.NewValue)
		}
	}
}
