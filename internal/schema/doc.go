// Package schema compiles entity types and entity sets from CUE and answers
// the lookups the store, query pipeline and snapshot engine need: key
// properties, navigation bindings and the set that holds a given type.
package schema
