// Package prefs provides the local preference stores that supply author identity.
package prefs

import (
	"github.com/spf13/viper"
)

// Preference keys read by the repository client.
const (
	KeyUserName  = "gitUserName"
	KeyUserEmail = "gitUserEmail"
)

// Getter is a synchronous string-keyed lookup. A missing key reports ok=false.
type Getter interface {
	Get(key string) (string, bool)
}

// Map is an in-memory Getter.
type Map map[string]string

// Get returns the value stored under key.
func (m Map) Get(key string) (string, bool) {
	v, ok := m[key]
	return v, ok
}

// Viper exposes preferences held in a viper config under the "git" section,
// so that config.yaml or GITBEAN_GIT_USER_NAME can supply identity.
type Viper struct {
	v *viper.Viper
}

// viperKeys maps preference keys onto config keys.
var viperKeys = map[string]string{
	KeyUserName:  "git.user-name",
	KeyUserEmail: "git.user-email",
}

// NewViper wraps v. A nil v uses the global viper instance.
func NewViper(v *viper.Viper) *Viper {
	if v == nil {
		v = viper.GetViper()
	}
	return &Viper{v: v}
}

// Get looks up key, translating known preference keys to their config names.
func (p *Viper) Get(key string) (string, bool) {
	name, ok := viperKeys[key]
	if !ok {
		name = key
	}
	if !p.v.IsSet(name) {
		return "", false
	}
	return p.v.GetString(name), true
}

type chain []Getter

// Chain returns a Getter that consults each getter in order and returns the
// first non-empty value.
func Chain(getters ...Getter) Getter {
	return chain(getters)
}

func (c chain) Get(key string) (string, bool) {
	found := false
	for _, g := range c {
		if g == nil {
			continue
		}
		v, ok := g.Get(key)
		if !ok {
			continue
		}
		found = true
		if v != "" {
			return v, true
		}
	}
	return "", found
}
