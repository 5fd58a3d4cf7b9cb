package config

import (
	"errors"
	"reflect"

	"dario.cat/mergo"
	"github.com/joeshaw/envdecode"
)

// PopulateFromEnv fills the empty fields of obj from the variables named in
// its env struct tags. Values already set in obj are kept.
func PopulateFromEnv(obj interface{}) error {
	s := reflect.ValueOf(obj)
	if s.Kind() != reflect.Ptr {
		return errors.New("not a pointer")
	}
	fromEnv := reflect.New(s.Elem().Type()).Interface()
	if err := envdecode.Decode(fromEnv); err != nil {
		if errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
			return nil
		}
		return err
	}
	return mergo.Merge(obj, fromEnv)
}
