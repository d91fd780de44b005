package gitrepo

import "github.com/asukhodko/git-datasource/internal/model"

// ToChangeSet converts a DiffTrees result into the host-facing
// model.ChangeSet shape.
func ToChangeSet(changes []TreeChange) model.ChangeSet {
	var cs model.ChangeSet
	for _, ch := range changes {
		switch ch.Kind {
		case ChangeAdded:
			cs.Added = append(cs.Added, ch.NewPath)
		case ChangeModified:
			cs.Modified = append(cs.Modified, ch.NewPath)
		case ChangeDeleted:
			cs.Deleted = append(cs.Deleted, ch.OldPath)
		case ChangeRenamed:
			cs.Renamed = append(cs.Renamed, model.Rename{Old: ch.OldPath, New: ch.NewPath})
		}
	}
	return cs
}
