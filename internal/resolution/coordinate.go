package resolution

// Coordinate is the version-independent identity of a dependency.
type Coordinate struct {
	Group string
	Name  string
}

func (c Coordinate) String() string {
	return c.Group + ":" + c.Name
}

// Artifact is one resolved module and the file it resolved to.
type Artifact struct {
	Coordinate Coordinate
	Version    string
	Path       string
}
