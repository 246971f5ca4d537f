package models

import (
	entrymodels "io.winapps.traveljournal/internal/models/entry"
)

// ListEntriesResponse is newest first and never null.
type ListEntriesResponse []*entrymodels.Entry
