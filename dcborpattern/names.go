package dcborpattern

// CaptureNames returns every capture name reachable from pat, used by the
// envelope-level compiler to detect collisions between its own `@name(...)`
// captures and names captured inside embedded cbor(...)/array([...])/
// map({...})/tagged(...) fragments (spec.md §4.5, "name collisions are a
// compile error").
func CaptureNames(pat Pattern) []string {
	var out []string
	collectNames(pat, &out)
	return out
}

func collectNames(pat Pattern, out *[]string) {
	switch p := pat.(type) {
	case capturePattern:
		*out = append(*out, p.name)
		collectNames(p.pat, out)
	case notPattern:
		collectNames(p.pat, out)
	case andPattern:
		for _, sub := range p.pats {
			collectNames(sub, out)
		}
	case orPattern:
		for _, sub := range p.pats {
			collectNames(sub, out)
		}
	case arrayPattern:
		for _, el := range p.elements {
			collectNames(el.Pattern, out)
		}
	case mapPattern:
		for _, e := range p.entries {
			collectNames(e.Key, out)
			collectNames(e.Value, out)
		}
	case taggedPattern:
		collectNames(p.content, out)
	}
}
