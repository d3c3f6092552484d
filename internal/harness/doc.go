// Package harness runs conformance scenarios against the catalog service.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: changeset_rollback
//	description: "A failing operation undoes the whole changeset"
//	reset: 4
//	steps:
//	  - op: read
//	    set: Products
//	    query: {count: true, skip: 1, top: 2, orderby: Name}
//	    expect: {status: 200, count: 4, keys: [2, 3]}
//	  - op: changeset
//	    steps:
//	      - op: create
//	        set: Products
//	        record: {Name: Lamp}
//	      - op: delete
//	        set: Products
//	        key: {ID: 42}
//	    expect: {status: 404, committed: false}
//	assertions:
//	  - type: set_count
//	    set: Products
//	    count: 4
//	  - type: final_state
//	    set: Products
//	    key: {ID: 1}
//	    expect: {Name: "Notebook Basic 15"}
//
// Step ops are read, create, update, delete, changeset, begin, commit,
// rollback, reset, count_categories, create_media, read_media and
// update_media. Filters use the expr.Decode map form.
//
// # Assertion Types
//
//   - final_state: the keyed record exists with the expected field values
//   - set_count: the set holds exactly count records
//   - record_absent: no record has the key
//
// # Deterministic Testing
//
// Every scenario starts from a freshly seeded catalog. Generated keys come
// from testutil.SequentialIDs, so traces and final states are identical
// across runs and can be compared with golden files (RunWithGolden).
package harness
