package proc

// DoYield asks the scheduler to reschedule at its next opportunity, the Go
// equivalent of do_yield.
func DoYield() {
	current.NeedResched = true
}
