// Package model defines the entities of an installation project: vehicles
// scheduled for hardware installation, the locations they are serviced at,
// the technicians doing the work, their tasks and comments, and the project
// settings singleton.
//
// Every entity is owned by the remote store. Values held in memory are cached
// copies; foreign keys (Vehicle.Location, Task.VehicleID, Task.AssignedTo,
// Comment.TaskID) may dangle and readers must treat an unresolved reference
// as unknown rather than failing.
package model
