// Package instrument binds a protocol codec to a transport as one
// controllable bench device.
//
// The registry names the supported instrument models and answers, for
// each, which transports can carry it, which commands it accepts, and
// how to build its codec. Resolving a model never touches hardware;
// only Device.Open attaches.
//
// A Device funnels commands out and decoded units back, enforcing the
// model's command capabilities on the way out (Raw commands bypass the
// check). State tracks the measuring session across readings,
// including the running extremes used by min/max tracking.
package instrument
