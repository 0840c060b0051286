// Package exiftool wraps the external ExifTool command used to discover and
// harvest preview images embedded in camera RAW and InDesign files.
//
// Three invocations are used per preview request:
//
//	exiftool -json -preview:all -FileType <path>               (Probe)
//	exiftool -ignoreMinorErrors -b -<TAG> <path> > <artifact>   (Extract)
//	exiftool -ignoreMinorErrors -TagsFromFile <path> \
//	         -orientation -overwrite_original <artifact>         (CopyOrientation)
//
// No shell is involved: arguments are passed to the process directly and
// paths are made absolute so a file name can never be read as an option.
// Command lines are logged shell-quoted at debug level.
//
// Locate resolves which executable to run. The result is normally computed
// once per process and shared by every request.
package exiftool
