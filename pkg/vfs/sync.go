package vfs

import "time"

// SyncEvery flushes the disk to the host directory path every interval
// while stop is open. Failed flushes are passed to onErr, which may be nil;
// the files stay dirty and are retried on the next tick.
func (vd *VirtualDisk) SyncEvery(path string, interval time.Duration, stop <-chan struct{}, onErr func(error)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if !vd.IsDirty() {
				continue
			}
			if err := vd.PersistTo(path); err != nil && onErr != nil {
				onErr(err)
			}
		case <-stop:
			return
		}
	}
}
