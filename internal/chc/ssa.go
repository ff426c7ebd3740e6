package chc

import "fmt"

// Distinguished frame symbols tracked alongside program variables: the
// error flag (0 == no error), the executing contract's own address, and
// the blockchain-state symbol (an opaque array-sorted handle a
// SymbolicEncoder resolves storage reads/writes against).
const (
	ErrorSymbol   = "$error"
	AddressSymbol = "$address"
	StateSymbol   = "$state"
)

// SSAState tracks the monotonic version counter of every variable live in
// one block. Keys are qualified by the owning block's predicate name so
// that the same source variable in two different blocks never collides.
type SSAState struct {
	owner    string
	versions map[string]int
}

func NewSSAState(owner string) *SSAState {
	return &SSAState{owner: owner, versions: make(map[string]int)}
}

func (s *SSAState) Owner() string { return s.owner }

// Version returns the current version number of name (0 if untouched).
func (s *SSAState) Version(name string) int { return s.versions[name] }

// Key returns the qualified SSA name a SymbolicEncoder should use to look
// up or mint the term for name's current version.
func (s *SSAState) Key(name string) string {
	return fmt.Sprintf("%s.%s#%d", s.owner, name, s.versions[name])
}

// KeyAt returns the qualified SSA name for an explicit past version,
// used to stitch together values across branch merges.
func (s *SSAState) KeyAt(name string, version int) string {
	return fmt.Sprintf("%s.%s#%d", s.owner, name, version)
}

// Bump advances name to a fresh version and returns its new key.
func (s *SSAState) Bump(name string) string {
	s.versions[name]++
	return s.Key(name)
}

// Names returns every variable this state has versioned so far.
func (s *SSAState) Names() []string {
	names := make([]string, 0, len(s.versions))
	for n := range s.versions {
		names = append(names, n)
	}
	return names
}
