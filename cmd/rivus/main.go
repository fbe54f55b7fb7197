/*
Copyright © 2018 the rivus authors.
This file is part of rivus.

rivus is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

rivus is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with rivus.  If not, see <http://www.gnu.org/licenses/>.
*/

// Command rivus is a command-line interface for the rivus energy network
// model builder.
package main

import (
	"os"

	"github.com/spatialmodel/rivus/rivusutil"
)

func main() {
	if err := rivusutil.Root.Execute(); err != nil {
		os.Exit(1)
	}
}
