// Copyright 2018 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

/*Package interval implements interval-union operations on closed integer
  coordinates, as used for TAD boundary windows.
  (Note the 'union'.  Overlapping and touching intervals are merged, not
  tracked separately.)
  It also parses samtools-style region strings.
*/
package interval
