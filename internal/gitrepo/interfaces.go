package gitrepo

import "github.com/asukhodko/git-datasource/internal/syncdecision"

var _ syncdecision.AncestryChecker = (*Graph)(nil)
