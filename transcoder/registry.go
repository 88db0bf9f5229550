package transcoder

import (
	"reflect"
	"strconv"
	"sync"

	"github.com/wippyai/ocamlrep"
	"github.com/wippyai/ocamlrep/errors"
)

// maxPayloadCases is the number of block tags available to variants; tags
// from LazyTag up are reserved by the runtime.
const maxPayloadCases = int(ocamlrep.LazyTag)

var registry = struct {
	mu   sync.RWMutex
	sets map[reflect.Type][]reflect.Type
}{sets: make(map[reflect.Type][]reflect.Type)}

// RegisterVariants declares the closed set of cases of the sum type I, an
// interface type. Order matters: struct cases without encoded fields are
// nullary and number 0, 1, 2... among themselves; every other case carries
// a payload and gets the next block tag among payload cases.
//
//	type Shape interface{ isShape() }
//	transcoder.RegisterVariants[Shape](Empty{}, Circle{}, Rect{})
//	// Empty -> immediate 0, Circle -> block tag 0, Rect -> block tag 1
//
// Registration must happen before I is first converted.
func RegisterVariants[I any](cases ...I) error {
	iface := reflect.TypeFor[I]()
	if iface.Kind() != reflect.Interface {
		return errors.Registration(iface.String(), "variant type must be an interface")
	}
	if len(cases) == 0 {
		return errors.Registration(iface.String(), "no cases given")
	}

	caseTypes := make([]reflect.Type, 0, len(cases))
	seen := make(map[reflect.Type]bool, len(cases))
	for i, c := range cases {
		t := reflect.TypeOf(c)
		if t == nil {
			return errors.Registration(iface.String(), "case "+strconv.Itoa(i)+" is nil")
		}
		if seen[t] {
			return errors.Registration(iface.String(), "case type "+t.String()+" registered twice")
		}
		seen[t] = true
		caseTypes = append(caseTypes, t)
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, ok := registry.sets[iface]; ok {
		return errors.Registration(iface.String(), "variants already registered")
	}
	registry.sets[iface] = caseTypes
	return nil
}

// MustRegisterVariants is like RegisterVariants but panics on error.
func MustRegisterVariants[I any](cases ...I) {
	if err := RegisterVariants(cases...); err != nil {
		panic(err)
	}
}

func lookupVariants(iface reflect.Type) ([]reflect.Type, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	cases, ok := registry.sets[iface]
	return cases, ok
}
