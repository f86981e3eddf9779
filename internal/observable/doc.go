// Package observable provides in-memory values that notify subscribers on
// change.
//
// Subscribe delivers the current value immediately and then every later
// value, synchronously and in the order values were set. Map derives a
// read-only view:
//
//	flags := observable.NewValue[map[string]bool](nil)
//	darkMode := observable.Map(flags, func(m map[string]bool) bool { return m["dark_mode"] })
//	stop := darkMode.Subscribe(func(on bool) { render(on) })
//	defer stop()
package observable
