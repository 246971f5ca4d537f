package models

import (
	entrymodels "io.winapps.traveljournal/internal/models/entry"
)

type CreateEntryResponse = entrymodels.Entry
