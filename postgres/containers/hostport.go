// Copyright (c) 2025 amidgo. All rights reserved.
// Use of this source code is governed by the MIT license that can be found in the LICENSE file.

// Package containers carries docker level customizers for the postgres
// container, for suites that must reach the database on a fixed host
// address instead of a random mapped port.
package containers

import (
	"strconv"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	"github.com/testcontainers/testcontainers-go"
)

const postgresPort nat.Port = "5432/tcp"

// HostPort binds the container postgres port to a fixed host ip and
// port.
func HostPort(hostIP string, hostPort uint16) testcontainers.ContainerCustomizer {
	return testcontainers.CustomizeRequestOption(
		func(req *testcontainers.GenericContainerRequest) error {
			req.HostConfigModifier = func(hc *container.HostConfig) {
				hc.PortBindings = nat.PortMap{
					postgresPort: []nat.PortBinding{
						{
							HostIP:   hostIP,
							HostPort: strconv.FormatUint(uint64(hostPort), 10),
						},
					},
				}
			}

			return nil
		},
	)
}
