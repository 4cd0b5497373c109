//go:build !linux

package dispatch

// poll hands the child to a waiter goroutine on first use and reports whether
// it has finished.
func (p *osProcess) poll() (bool, error) {
	p.watch.Do(func() {
		go func() { _ = p.Wait() }()
	})
	select {
	case <-p.done:
		return true, nil
	default:
		return false, nil
	}
}
