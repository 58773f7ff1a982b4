/*
 * muninn documentation-dummy
 *
 * Copyright (c) 2023 Telenor Norge AS
 *
 * This library is free software; you can redistribute it and/or
 * modify it under the terms of the GNU Lesser General Public
 * License as published by the Free Software Foundation; either
 * version 2.1 of the License, or (at your option) any later version.
 *
 * This library is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
 * Lesser General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public
 * License along with this library; if not, write to the Free Software
 * Foundation, Inc., 51 Franklin Street, Fifth Floor, Boston, MA
 * 02110-1301  USA
 */

/*
Package muninn is a toolset for unattended configuration backup and
compliance auditing of large amounts of network devices over their CLI
management plane (SSH today, conceptually any command/response protocol).

For each device in the inventory, muninn pulls the full running
configuration to a timestamped file, checks neighbor discovery, extracts
the software identity and enforces an NTP/timezone baseline. Devices are
processed by a fixed pool of workers, each driving a single session at a
time, and a failure on one device never affects another.

It can run as a one-shot batch over a device inventory (cmd/muninn), or
as a worker daemon consuming backup orders from a queue (cmd/muninn-ssh).
*/
package muninn
