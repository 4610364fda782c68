// Package demo is a small zoo of sample classes used by cominspect and the
// end-to-end tests.
//
// IFood is implemented by Bowl. IDomesticAnimal and ICat both extend
// IAnimal and are implemented by BritishShortHairCat, so querying a cat for
// IAnimal yields its IDomesticAnimal pointer. Both classes are registered
// with a class factory registry under fixed CLSIDs.
//
// The typed stubs in zoo_gen.go are produced by cominspect -gen.
package demo

//go:generate go run ../../cmd/cominspect -gen demo -o zoo_gen.go
