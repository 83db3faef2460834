package shapes

type T struct{}

//stepgen:builder
func (T) Method(a int) int { return a }

//stepgen:builder
func NoResult(a int) {}

//stepgen:builder
func TooMany(a int) (int, int, error) { return 0, 0, nil }

//stepgen:builder
func NotError(a int) (int, int) { return 0, 0 }

//stepgen:builder
func Unnamed(int) int { return 0 }

//stepgen:builder
//stepgen:optional b
func UnknownParam(a int) int { return a }

//stepgen:builder
//stepgen:nullable a
func NotNilable(a int) int { return a }

//stepgen:builder
func Fine(a int) int { return a }

//stepgen:builder
func ParamErr[E error](a int) (int, E) {
	var e E
	return a, e
}
