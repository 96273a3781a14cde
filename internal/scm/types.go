package scm

// RevisionSource reports the source revision a build was made from.
// An empty revision means the directory is not under version control.
type RevisionSource interface {
	HeadRevision(dir string) (string, error)
}
