package invoke

// Discriminator decides whether an adapter can handle an envelope. It is the
// adapter's availability predicate and must only inspect structure.
type Discriminator interface {
	Match(v View) bool
}

// HasFields returns a Discriminator that matches when all paths exist.
// Array elements are addressed by index, so HasFields("Records.0") checks for
// a non-empty Records array.
func HasFields(paths ...string) Discriminator {
	return hasFields{paths: paths}
}

type hasFields struct {
	paths []string
}

func (d hasFields) Match(v View) bool {
	for _, p := range d.paths {
		if !v.HasField(p) {
			return false
		}
	}
	return true
}

// FieldEquals returns a Discriminator that matches when the path exists
// and equals the given string value.
func FieldEquals(path, value string) Discriminator {
	return fieldEquals{path: path, value: value}
}

type fieldEquals struct {
	path  string
	value string
}

func (d fieldEquals) Match(v View) bool {
	s, ok := v.GetString(d.path)
	return ok && s == d.value
}

// And returns a Discriminator that matches when all discriminators match.
func And(ds ...Discriminator) Discriminator {
	return and{ds: ds}
}

type and struct {
	ds []Discriminator
}

func (d and) Match(v View) bool {
	for _, disc := range d.ds {
		if !disc.Match(v) {
			return false
		}
	}
	return true
}

// Or returns a Discriminator that matches when any discriminator matches.
func Or(ds ...Discriminator) Discriminator {
	return or{ds: ds}
}

type or struct {
	ds []Discriminator
}

func (d or) Match(v View) bool {
	for _, disc := range d.ds {
		if disc.Match(v) {
			return true
		}
	}
	return false
}

// Not returns a Discriminator that inverts d.
func Not(d Discriminator) Discriminator {
	return not{d: d}
}

type not struct {
	d Discriminator
}

func (d not) Match(v View) bool {
	return !d.d.Match(v)
}

// IsObject returns a Discriminator that matches any envelope whose root is
// a JSON object. Direct-call adapters use it as a catch-all.
func IsObject() Discriminator {
	return isObject{}
}

type isObject struct{}

func (isObject) Match(v View) bool {
	return v.Root().IsObject()
}

// RecordSource returns a Discriminator that matches record batches whose
// first record carries the given origin tag. Providers spell the field
// eventSource or EventSource depending on the service, so both are checked.
func RecordSource(tag string) Discriminator {
	return Or(
		FieldEquals("Records.0.eventSource", tag),
		FieldEquals("Records.0.EventSource", tag),
	)
}
