package git

// Async variants dispatch the synchronous call on a new goroutine and
// deliver the result through the callback. Callers must not assume which
// goroutine invokes the callback; hand the result off to your own loop if
// you need affinity.

// StatusAsync runs Status on a new goroutine.
func (s *Service) StatusAsync(fn func(Status, error)) {
	go func() { fn(s.Status()) }()
}

// LogAsync runs Log on a new goroutine.
func (s *Service) LogAsync(opts LogOptions, fn func([]Commit, error)) {
	go func() { fn(s.Log(opts)) }()
}

// FetchAsync runs Fetch on a new goroutine.
func (s *Service) FetchAsync(remote string, fn func(Outcome)) {
	go func() { fn(s.Fetch(remote)) }()
}

// PullAsync runs Pull on a new goroutine.
func (s *Service) PullAsync(remote, branch string, fn func(Outcome)) {
	go func() { fn(s.Pull(remote, branch)) }()
}

// PushAsync runs Push on a new goroutine.
func (s *Service) PushAsync(remote, branch string, force bool, fn func(Outcome)) {
	go func() { fn(s.Push(remote, branch, force)) }()
}

// CloneAsync runs Clone on a new goroutine.
func (s *Service) CloneAsync(url, path string, fn func(Outcome)) {
	go func() { fn(s.Clone(url, path)) }()
}
