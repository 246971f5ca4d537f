package models

import (
	entrymodels "io.winapps.traveljournal/internal/models/entry"
)

// AddMediaResponse is the list of references added by the request, not the whole entry.
type AddMediaResponse []entrymodels.Media
