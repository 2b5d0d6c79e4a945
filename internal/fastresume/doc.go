// Package fastresume loads, rewrites, and saves qBittorrent .fastresume
// records.
//
// A Record wraps the decoded root dictionary of one file and exposes the
// path-bearing fields: save_path, qBt-savePath, qBt-downloadPath, and the
// mapped_files list. Every mutation is planned and validated before anything
// is written, so a rejected update leaves both the document and the disk
// untouched. When requested, a timestamped .bkup copy of the pre-mutation
// document is written exactly once per logical update.
//
// All other keys are carried through untouched and re-encode byte for byte.
package fastresume
