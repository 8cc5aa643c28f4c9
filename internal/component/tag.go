package component

// ScreenTag marks an entity as belonging to one screen so the screen's exit
// hook can remove it in bulk.
type ScreenTag struct {
	Screen string
}

// ComputeTask marks a reserved slot entity whose background job has not been
// applied yet. Pure marker: the future itself lives in the job table.
type ComputeTask struct {
	JobID uint64
	Cell  Cell
}
